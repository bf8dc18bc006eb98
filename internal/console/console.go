package console

// Console wires the components against one client, cache and toaster.
type Console struct {
	Client   *Client
	Cache    *QueryCache
	Roles    *RoleEditor
	Plans    *PlanManager
	Quota    *QuotaEditor
	Security *SecurityForm
	Users    *UserDirectory
}

// New builds a Console. cache and toaster may be nil.
func New(client *Client, cache *QueryCache, toaster Toaster) *Console {
	if cache == nil {
		cache = NewQueryCache(nil)
	}
	d := deps{client: client, cache: cache, toaster: toasterOrDiscard(toaster), pending: &Pending{}}
	return &Console{
		Client:   client,
		Cache:    cache,
		Roles:    &RoleEditor{deps: d},
		Plans:    &PlanManager{deps: d},
		Quota:    &QuotaEditor{deps: d},
		Security: &SecurityForm{deps: d},
		Users:    &UserDirectory{deps: d},
	}
}
