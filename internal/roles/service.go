package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
	platformcache "github.com/rfpdesk/rfpdesk/internal/platform/cache"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

// CacheNamespace is the cache namespace holding role and catalog documents.
const CacheNamespace = "roles"

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	InsertRole(ctx context.Context, role Role) (Role, error)
	SaveRole(ctx context.Context, role Role) (Role, error)
	DeleteRole(ctx context.Context, id string) error
	CountAssignedUsers(ctx context.Context, id string) (int, error)
	ListDefinitions(ctx context.Context) ([]permissions.Definition, error)
}

// Cache is the read-through cache used for role listings. A nil Cache passed
// to NewService loads straight from the repository.
type Cache interface {
	Fetch(ctx context.Context, namespace, key string, dest any, loader func(context.Context) (any, error)) error
	Invalidate(ctx context.Context, namespace string) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles role business logic. It applies the same visibility and
// edit rules the console uses for display, as authorization.
type Service struct {
	repo     RepositoryPort
	cache    Cache
	audit    AuditRecorder
	logger   *slog.Logger
	fallback *permissions.Catalog
}

// Option customises the service.
type Option func(*Service)

// WithFallbackCatalog sets the catalog used when no definitions are stored.
func WithFallbackCatalog(c *permissions.Catalog) Option {
	return func(s *Service) { s.fallback = c }
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, cache Cache, audit AuditRecorder, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = platformcache.NewJSONCache(nil, 0)
	}
	s := &Service{
		repo:     repo,
		cache:    cache,
		audit:    audit,
		logger:   logger,
		fallback: permissions.DefaultCatalog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the permission catalog, preferring stored definitions.
func (s *Service) Catalog(ctx context.Context) (*permissions.Catalog, error) {
	var defs []permissions.Definition
	err := s.fetch(ctx, "catalog", &defs, func(ctx context.Context) (any, error) {
		return s.repo.ListDefinitions(ctx)
	})
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		if s.fallback == nil {
			return permissions.MustCatalog(), nil
		}
		return s.fallback, nil
	}
	catalog, err := permissions.NewCatalog(defs...)
	if err != nil {
		return nil, fmt.Errorf("roles: stored catalog: %w", err)
	}
	return catalog, nil
}

// List returns the roles visible to callerRole together with the catalog.
func (s *Service) List(ctx context.Context, callerRole string) (ListResult, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return ListResult{}, err
	}
	all, err := s.all(ctx, catalog)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Roles:                 FilterVisible(callerRole, all),
		PermissionDefinitions: catalog.Definitions(),
	}, nil
}

// Get returns a single role, falling back to built-in defaults.
func (s *Service) Get(ctx context.Context, id string) (Role, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return Role{}, err
	}
	all, err := s.all(ctx, catalog)
	if err != nil {
		return Role{}, err
	}
	return find(all, id)
}

// PermissionsFor returns the permission set held by roleID.
func (s *Service) PermissionsFor(ctx context.Context, roleID string) (permissions.Set, error) {
	role, err := s.Get(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// Create adds a custom role.
func (s *Service) Create(ctx context.Context, caller shared.Principal, in RoleInput) (Role, error) {
	if !CanCreate(caller.Role) {
		return Role{}, ErrNotEditable
	}
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return Role{}, ErrRoleNameEmpty
	}
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return Role{}, err
	}
	if catalog.Empty() {
		return Role{}, ErrEmptyCatalog
	}
	perms, err := catalog.Normalize(in.Permissions)
	if err != nil {
		return Role{}, err
	}
	all, err := s.all(ctx, catalog)
	if err != nil {
		return Role{}, err
	}
	for _, r := range all {
		if strings.EqualFold(r.Name, name) {
			return Role{}, fmt.Errorf("%w: %s", ErrRoleDuplicate, name)
		}
	}

	created, err := s.repo.InsertRole(ctx, Role{ID: newRoleID(name), Name: name, Permissions: perms})
	if err != nil {
		return Role{}, err
	}
	s.afterMutation(ctx, caller, "role.create", created)
	return created, nil
}

// Update changes a role's permissions and, for custom roles, its name.
func (s *Service) Update(ctx context.Context, caller shared.Principal, id string, in RoleInput) (Role, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return Role{}, err
	}
	all, err := s.all(ctx, catalog)
	if err != nil {
		return Role{}, err
	}
	current, err := find(all, id)
	if err != nil {
		return Role{}, err
	}
	if !CanEdit(caller.Role, current) {
		return Role{}, ErrNotEditable
	}

	next := current
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Role{}, ErrRoleNameEmpty
		}
		if current.IsBuiltIn && name != current.Name {
			return Role{}, ErrBuiltInRole
		}
		for _, r := range all {
			if r.ID != current.ID && strings.EqualFold(r.Name, name) {
				return Role{}, fmt.Errorf("%w: %s", ErrRoleDuplicate, name)
			}
		}
		next.Name = name
	}
	if in.Permissions != nil {
		perms, err := catalog.Normalize(in.Permissions)
		if err != nil {
			return Role{}, err
		}
		next.Permissions = perms
	}

	saved, err := s.repo.SaveRole(ctx, next)
	if err != nil {
		return Role{}, err
	}
	saved.IsBuiltIn = current.IsBuiltIn
	s.afterMutation(ctx, caller, "role.update", saved)
	return saved, nil
}

// Delete removes a custom role that no user holds.
func (s *Service) Delete(ctx context.Context, caller shared.Principal, id string) error {
	if IsBuiltInID(id) {
		return ErrBuiltInRole
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.IsBuiltIn {
		return ErrBuiltInRole
	}
	if !CanDelete(caller.Role, current) {
		return ErrNotEditable
	}
	n, err := s.repo.CountAssignedUsers(ctx, current.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d user(s) still hold %s", ErrRoleInUse, n, current.Name)
	}
	if err := s.repo.DeleteRole(ctx, current.ID); err != nil {
		return err
	}
	s.afterMutation(ctx, caller, "role.delete", current)
	return nil
}

func (s *Service) all(ctx context.Context, catalog *permissions.Catalog) ([]Role, error) {
	var stored []Role
	err := s.fetch(ctx, "all", &stored, func(ctx context.Context) (any, error) {
		return s.repo.ListRoles(ctx)
	})
	if err != nil {
		return nil, err
	}
	return MergeDefaults(stored, DefaultRoles(catalog)), nil
}

func (s *Service) fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	return s.cache.Fetch(ctx, CacheNamespace, key, dest, loader)
}

func (s *Service) afterMutation(ctx context.Context, caller shared.Principal, action string, role Role) {
	if err := s.cache.Invalidate(ctx, CacheNamespace); err != nil {
		s.logger.Warn("roles cache invalidate", slog.Any("error", err))
	}
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   action,
		Entity:   "role",
		EntityID: role.ID,
		Meta:     map[string]any{"name": role.Name, "permissions": role.Permissions.Grants()},
	})
	if err != nil {
		s.logger.Error("roles audit", slog.String("action", action), slog.Any("error", err))
	}
}

func find(all []Role, id string) (Role, error) {
	want := NormalizeID(id)
	for _, r := range all {
		if NormalizeID(r.ID) == want {
			return r, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

func newRoleID(name string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSep = false
			continue
		}
		if !lastSep {
			b.WriteByte('_')
			lastSep = true
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "role"
	}
	return slug + "_" + uuid.NewString()[:8]
}
