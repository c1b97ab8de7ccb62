package tray

import (
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/shared/utils"
)

// Action is what activating a menu item does
type Action string

const (
	ActionNone        Action = ""
	ActionLaunchSite  Action = "launch_site"
	ActionLaunchProxy Action = "launch_proxy"
	ActionQuit        Action = "quit"
)

// Menu item ids
const (
	ItemSites     = "sites"
	ItemProxies   = "proxies"
	ItemNoSites   = "no_sites"
	ItemNoProxies = "no_proxies"
	ItemSeparator = "separator"
	ItemQuit      = "quit"

	sitePrefix  = "site_"
	proxyPrefix = "proxy_"
)

// Item is one menu entry. Submenus carry Children and no action.
type Item struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	Enabled   bool   `json:"enabled"`
	Separator bool   `json:"separator,omitempty"`
	Action    Action `json:"action,omitempty"`
	Target    string `json:"target,omitempty"`
	Children  []Item `json:"children,omitempty"`
}

// Menu is a complete tray menu stamped with the revision it was built for
type Menu struct {
	Revision uint64 `json:"revision"`
	Items    []Item `json:"items"`
}

// BuildMenu projects the sites and proxies of doc into a tray menu.
// A nil document yields the empty menu.
func BuildMenu(doc *settings.AppSettings) Menu {
	var sites []settings.SiteConfig
	var proxies []settings.ProxyConfig
	if doc != nil {
		sites = doc.Sites
		proxies = doc.Proxies
	}

	siteItems := make([]Item, 0, len(sites))
	for _, s := range sites {
		siteItems = append(siteItems, Item{
			ID:      sitePrefix + s.ID,
			Label:   s.Name,
			Enabled: true,
			Action:  ActionLaunchSite,
			Target:  s.ID,
		})
	}
	if len(siteItems) == 0 {
		siteItems = append(siteItems, Item{ID: ItemNoSites, Label: "No sites configured"})
	}

	proxyItems := make([]Item, 0, len(proxies))
	for _, p := range proxies {
		proxyItems = append(proxyItems, Item{
			ID:      proxyPrefix + p.ID,
			Label:   p.Name,
			Enabled: true,
			Action:  ActionLaunchProxy,
			Target:  p.ID,
		})
	}
	if len(proxyItems) == 0 {
		proxyItems = append(proxyItems, Item{ID: ItemNoProxies, Label: "No proxies configured"})
	}

	return Menu{
		Items: []Item{
			{ID: ItemSites, Label: "Launch Sites", Enabled: true, Children: siteItems},
			{ID: ItemProxies, Label: "Launch Proxies", Enabled: true, Children: proxyItems},
			{ID: ItemSeparator, Separator: true},
			{ID: ItemQuit, Label: "Quit", Enabled: true, Action: ActionQuit},
		},
	}
}

// Find returns the item with the given id at any depth
func (m Menu) Find(itemID string) (Item, bool) {
	return find(m.Items, itemID)
}

func find(items []Item, itemID string) (Item, bool) {
	for _, it := range items {
		if it.ID == itemID {
			return it, true
		}
		if found, ok := find(it.Children, itemID); ok {
			return found, true
		}
	}
	return Item{}, false
}

// Entries counts the actionable items
func (m Menu) Entries() int {
	return count(m.Items)
}

func count(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Action != ActionNone && it.Enabled {
			n++
		}
		n += count(it.Children)
	}
	return n
}

// Clone returns a deep copy of the menu
func (m Menu) Clone() Menu {
	return Menu{Revision: m.Revision, Items: cloneItems(m.Items)}
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		out[i].Children = cloneItems(it.Children)
	}
	return out
}

type projection struct {
	Sites   []settings.SiteConfig  `json:"sites"`
	Proxies []settings.ProxyConfig `json:"proxies"`
}

var hasher = utils.DefaultHasher()

// Fingerprint hashes the part of doc the menu is built from
func Fingerprint(doc *settings.AppSettings) (string, error) {
	p := projection{}
	if doc != nil {
		p.Sites = doc.Sites
		p.Proxies = doc.Proxies
	}
	return hasher.HashJSON(p)
}
