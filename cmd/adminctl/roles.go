package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rfpdesk/rfpdesk/internal/console"
	"github.com/rfpdesk/rfpdesk/internal/permissions"
	"github.com/rfpdesk/rfpdesk/internal/roles"
)

func newRolesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List, create, edit and delete roles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the roles visible to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			res, err := s.Roles.List(cmd.Context(), s.info.Role)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tBUILT-IN\tPERMISSIONS")
			for _, r := range res.Roles {
				grants := r.Permissions.Grants()
				slices.Sort(grants)
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", r.ID, r.Name, r.IsBuiltIn, strings.Join(grants, ","))
			}
			return tw.Flush()
		},
	}

	var name string
	var grants []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a custom role",
		Long: `Create a custom role. Grants are key:scope pairs, key:* for every
scope of a key, or a bare key for flag permissions.

Example:
  adminctl roles create --name "Proposal Editor" --grant can_manage_proposals:* --grant can_generate_ai_content`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			res, err := s.Roles.List(cmd.Context(), s.info.Role)
			if err != nil {
				return err
			}
			draft, err := s.Roles.NewDraft(res.Catalog, nil)
			if err != nil {
				return err
			}
			draft.Name = name
			if err := applyGrants(draft, res.Catalog, grants); err != nil {
				return err
			}
			role, err := s.Roles.Save(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), role.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "role name")
	create.Flags().StringArrayVar(&grants, "grant", nil, "permission grant, repeatable")

	var setGrants []string
	var rename string
	set := &cobra.Command{
		Use:   "set <role-id>",
		Short: "Replace a role's permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			res, err := s.Roles.List(cmd.Context(), s.info.Role)
			if err != nil {
				return err
			}
			role, err := findRole(res.Roles, args[0])
			if err != nil {
				return err
			}
			role.Permissions = permissions.Set{}
			draft, err := s.Roles.NewDraft(res.Catalog, &role)
			if err != nil {
				return err
			}
			if rename != "" {
				if !draft.NameEditable() {
					return fmt.Errorf("built-in role %s cannot be renamed", role.ID)
				}
				draft.Name = rename
			}
			if err := applyGrants(draft, res.Catalog, setGrants); err != nil {
				return err
			}
			_, err = s.Roles.Save(cmd.Context(), draft)
			return err
		},
	}
	set.Flags().StringArrayVar(&setGrants, "grant", nil, "permission grant, repeatable")
	set.Flags().StringVar(&rename, "name", "", "new name for a custom role")

	var yes bool
	del := &cobra.Command{
		Use:   "delete <role-id>",
		Short: "Delete a custom role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			res, err := s.Roles.List(cmd.Context(), s.info.Role)
			if err != nil {
				return err
			}
			role, err := findRole(res.Roles, args[0])
			if err != nil {
				return err
			}
			_, err = s.Roles.Delete(cmd.Context(), role, confirmation(cmd, "Delete role "+role.Name+"?", yes))
			return err
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	cmd.AddCommand(list, create, set, del)
	return cmd
}

func findRole(all []roles.Role, id string) (roles.Role, error) {
	want := roles.NormalizeID(id)
	for _, r := range all {
		if roles.NormalizeID(r.ID) == want {
			return r, nil
		}
	}
	return roles.Role{}, fmt.Errorf("role %s not found", id)
}

// applyGrants adds each grant to the draft through the permission editor so
// the same scope rules as the interactive console apply.
func applyGrants(draft *console.Draft, catalog *permissions.Catalog, grants []string) error {
	for _, grant := range grants {
		key, scope, _ := strings.Cut(strings.TrimSpace(grant), ":")
		def, ok := catalog.Lookup(key)
		if !ok {
			return fmt.Errorf("unknown permission %q", key)
		}
		switch {
		case def.IsFlag():
			if !draft.AllChecked(key) {
				draft.ToggleScope(key, "")
			}
		case scope == "*":
			draft.SetAllScopes(key, def.AllowedScopes(), true)
		case def.Allows(permissions.Scope(scope)):
			if !slices.Contains(draft.Scopes(key), permissions.Scope(scope)) {
				draft.ToggleScope(key, permissions.Scope(scope))
			}
		default:
			return fmt.Errorf("scope %q is not allowed for %s", scope, key)
		}
	}
	return nil
}
