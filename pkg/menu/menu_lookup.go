package menu

import (
	"net/url"
	"strings"
)

type (
	// MenuLookup turns a menu identifier into the path token used in public links.
	MenuLookup interface {
		ResolveToken(menuID string) string
	}

	menuLookup struct{}
)

func NewMenuLookup() MenuLookup {
	return &menuLookup{}
}

func (m *menuLookup) ResolveToken(menuID string) string {
	return url.PathEscape(strings.TrimSpace(menuID))
}
