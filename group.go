package ldraw

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Groupable is implemented by elements that can belong to a Group.
type Groupable interface {
	Element
	GroupName() string
	SetGroupName(name string) error
	Group() *Group
}

// GroupableBase is embedded by elements that can join a group. Membership
// is stored by name; the Group element is looked up on demand in the
// element's page and the result is kept until the element moves or the
// group changes.
type GroupableBase struct {
	ElementBase
	groupName string

	group     *Group
	groupPage *Page
}

// GroupName returns the name of the group, or "".
func (g *GroupableBase) GroupName() string { return g.groupName }

// SetGroupName joins the named group, or leaves it when name is "".
func (g *GroupableBase) SetGroupName(name string) error {
	if name != "" {
		if err := validGroupName(name); err != nil {
			return err
		}
	}
	g.group = nil
	return setProperty(&g.ElementBase, "GroupName", &g.groupName, name, g.SetGroupName)
}

// Group returns the Group element named by GroupName in the element's
// page, or nil.
func (g *GroupableBase) Group() *Group {
	if g.groupName == "" {
		return nil
	}
	page := g.Page()
	if grp := g.group; grp != nil && !grp.disposed && grp.name == g.groupName && g.groupPage == page && grp.Page() == page {
		return grp
	}
	g.group, g.groupPage = nil, nil
	if page == nil {
		return nil
	}
	page.walk(func(e Element) bool {
		if grp, ok := e.(*Group); ok && grp.name == g.groupName {
			g.group = grp
			return false
		}
		return true
	})
	if g.group != nil {
		g.groupPage = page
	}
	return g.group
}

func validGroupName(name string) error {
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: group name %q", ErrInvalidArgument, name)
	}
	return nil
}

// Group is a named, non-hierarchical label. Elements join it by name.
type Group struct {
	ElementBase
	name string
}

// NewGroup returns a group label.
func NewGroup(name string) (*Group, error) {
	if err := validGroupName(name); err != nil {
		return nil, err
	}
	g := &Group{name: name}
	g.Init(g)
	return g, nil
}

// Kind returns KindGroup.
func (g *Group) Kind() ElementKind { return KindGroup }

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// SetName renames the group and moves its members to the new name.
func (g *Group) SetName(name string) error {
	if err := validGroupName(name); err != nil {
		return err
	}
	if name == g.name {
		return nil
	}
	if p := g.Page(); p != nil && p.findGroup(name) != nil {
		return &InsertError{Kind: KindGroup, Check: InsertDuplicateName}
	}
	members := g.Members()
	if err := setProperty(&g.ElementBase, "Name", &g.name, name, g.SetName); err != nil {
		return err
	}
	for _, m := range members {
		if err := m.SetGroupName(name); err != nil {
			return err
		}
	}
	return nil
}

// Members returns the elements of the page that belong to the group.
func (g *Group) Members() []Groupable {
	p := g.Page()
	if p == nil {
		return nil
	}
	var out []Groupable
	p.walk(func(e Element) bool {
		if m, ok := e.(Groupable); ok && m.GroupName() == g.name {
			out = append(out, m)
		}
		return true
	})
	return out
}

// CanInsertInto rejects a second group of the same name on a page.
func (g *Group) CanInsertInto(c *Collection) InsertCheck {
	if p := pageOf(c); p != nil {
		if other := p.findGroup(g.name); other != nil && other != g {
			return InsertDuplicateName
		}
	}
	return InsertAllowed
}

// Clone returns an unattached copy.
func (g *Group) Clone() Element {
	n := &Group{name: g.name}
	n.Init(n)
	return n
}

// Emit writes "0 GROUP n name" where n counts the members. Library output
// has no groups.
func (g *Group) Emit(b *CodeBuilder, ec *EmitContext) {
	if !ec.Standard.honoursGroups() {
		return
	}
	b.WriteLine("0 GROUP " + strconv.Itoa(len(g.Members())) + " " + g.name)
}

// pageOf returns the page that holds collection c.
func pageOf(c *Collection) *Page {
	for c != nil {
		switch h := c.host.(type) {
		case *Step:
			return h.page
		case Element:
			c = h.Base().parent
		default:
			return nil
		}
	}
	return nil
}

func (g *GroupableBase) groupable() *GroupableBase { return g }
