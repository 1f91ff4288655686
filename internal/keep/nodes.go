package keep

import (
	"encoding/json"
	"time"

	"github.com/mrlokans/ne2keep/internal/entities"
)

type NodeType string

const (
	NodeTypeNote     NodeType = "NOTE"
	NodeTypeList     NodeType = "LIST"
	NodeTypeListItem NodeType = "LIST_ITEM"
)

const (
	rootID          = "root"
	timestampLayout = "2006-01-02T15:04:05.000Z"

	// Gap between consecutive list entry sort values. Keep orders entries
	// by descending sort value.
	sortDelta = 10000
)

// epochTimestamp marks a timestamp that was never set (not trashed, not deleted)
var epochTimestamp = formatTimestamp(time.Unix(0, 0))

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Node is a note, list or list entry held by the session. Mutations mark
// it dirty; the next Sync sends it to the server.
type Node struct {
	id             string
	serverID       string
	parentID       string
	parentServerID string
	typ            NodeType
	sort           int64
	text           string
	title          string
	color          entities.Color
	pinned         bool
	checked        bool
	labelIDs       []string
	baseVersion    string
	created        time.Time
	updated        time.Time
	children       []*Node
	dirty          bool
}

func (n *Node) ID() string       { return n.id }
func (n *Node) ServerID() string { return n.serverID }
func (n *Node) Type() NodeType   { return n.typ }
func (n *Node) Title() string    { return n.title }
func (n *Node) Checked() bool    { return n.checked }
func (n *Node) Pinned() bool     { return n.pinned }
func (n *Node) Dirty() bool      { return n.dirty }
func (n *Node) Sort() int64      { return n.sort }

// Color returns the node color; new nodes are white.
func (n *Node) Color() entities.Color { return n.color }

// Text returns the body. For notes the body lives in a single child entry.
func (n *Node) Text() string {
	if n.typ == NodeTypeNote && len(n.children) > 0 {
		return n.children[0].text
	}
	return n.text
}

// Items returns the entries of a list, or the text entry of a note.
func (n *Node) Items() []*Node { return n.children }

// LabelIDs returns the ids of labels attached to the node.
func (n *Node) LabelIDs() []string { return n.labelIDs }

func (n *Node) SetColor(c entities.Color) {
	if !c.IsSet() || c == n.color {
		return
	}
	n.color = c
	n.touch()
}

func (n *Node) SetPinned(pinned bool) {
	if pinned == n.pinned {
		return
	}
	n.pinned = pinned
	n.touch()
}

// AddLabel attaches a label. Attaching the same label twice is a no-op.
func (n *Node) AddLabel(l *Label) {
	for _, id := range n.labelIDs {
		if id == l.id {
			return
		}
	}
	n.labelIDs = append(n.labelIDs, l.id)
	n.touch()
}

func (n *Node) touch() {
	n.dirty = true
}

func (n *Node) topLevel() bool {
	return n.typ == NodeTypeNote || n.typ == NodeTypeList
}

func (n *Node) wire() wireNode {
	w := wireNode{
		Kind:        "notes#node",
		ID:          n.id,
		ServerID:    n.serverID,
		ParentID:    n.parentID,
		Type:        n.typ,
		SortValue:   n.sort,
		Text:        n.text,
		BaseVersion: n.baseVersion,
		Timestamps: wireTimestamps{
			Kind:       "notes#timestamps",
			Created:    formatTimestamp(n.created),
			Updated:    formatTimestamp(n.updated),
			Trashed:    epochTimestamp,
			Deleted:    epochTimestamp,
			UserEdited: formatTimestamp(n.updated),
		},
	}

	if n.topLevel() {
		pinned, archived := n.pinned, false
		w.Title = n.title
		w.Color = n.color
		w.IsPinned = &pinned
		w.IsArchived = &archived
		w.NodeSettings = &wireNodeSettings{
			NewListItemPlacement:   "BOTTOM",
			GraveyardState:         "COLLAPSED",
			CheckedListItemsPolicy: "GRAVEYARD",
		}
		w.AnnotationsGroup = &wireAnnotationsGroup{Kind: "notes#annotationsGroup"}
		for _, id := range n.labelIDs {
			w.LabelIDs = append(w.LabelIDs, wireLabelRef{LabelID: id, Deleted: epochTimestamp})
		}
	} else {
		checked := n.checked
		w.Checked = &checked
		w.ParentServerID = n.parentServerID
	}

	return w
}

// Label is a Keep label. Labels are account-wide and referenced by id.
type Label struct {
	id      string
	name    string
	created time.Time
	updated time.Time
	deleted bool
	dirty   bool
}

func (l *Label) ID() string    { return l.id }
func (l *Label) Name() string  { return l.name }
func (l *Label) Dirty() bool   { return l.dirty }
func (l *Label) Deleted() bool { return l.deleted }

func (l *Label) wire() wireLabel {
	deleted := epochTimestamp
	if l.deleted {
		deleted = formatTimestamp(l.updated)
	}
	return wireLabel{
		MainID: l.id,
		Name:   l.name,
		Timestamps: wireTimestamps{
			Kind:    "notes#timestamps",
			Created: formatTimestamp(l.created),
			Updated: formatTimestamp(l.updated),
			Deleted: deleted,
		},
		LastMerged: epochTimestamp,
	}
}

type wireTimestamps struct {
	Kind       string `json:"kind"`
	Created    string `json:"created,omitempty"`
	Updated    string `json:"updated,omitempty"`
	Trashed    string `json:"trashed,omitempty"`
	Deleted    string `json:"deleted,omitempty"`
	UserEdited string `json:"userEdited,omitempty"`
}

type wireLabelRef struct {
	LabelID string `json:"labelId"`
	Deleted string `json:"deleted"`
}

type wireNodeSettings struct {
	NewListItemPlacement   string `json:"newListItemPlacement"`
	GraveyardState         string `json:"graveyardState"`
	CheckedListItemsPolicy string `json:"checkedListItemsPolicy"`
}

type wireAnnotationsGroup struct {
	Kind string `json:"kind"`
}

type wireNode struct {
	Kind             string                `json:"kind"`
	ID               string                `json:"id"`
	ServerID         string                `json:"serverId,omitempty"`
	ParentID         string                `json:"parentId"`
	ParentServerID   string                `json:"parentServerId,omitempty"`
	Type             NodeType              `json:"type"`
	SortValue        int64                 `json:"sortValue"`
	Text             string                `json:"text"`
	Title            string                `json:"title,omitempty"`
	Color            entities.Color        `json:"color,omitempty"`
	IsPinned         *bool                 `json:"isPinned,omitempty"`
	IsArchived       *bool                 `json:"isArchived,omitempty"`
	Checked          *bool                 `json:"checked,omitempty"`
	LabelIDs         []wireLabelRef        `json:"labelIds,omitempty"`
	BaseVersion      string                `json:"baseVersion,omitempty"`
	Timestamps       wireTimestamps        `json:"timestamps"`
	NodeSettings     *wireNodeSettings     `json:"nodeSettings,omitempty"`
	AnnotationsGroup *wireAnnotationsGroup `json:"annotationsGroup,omitempty"`
}

type wireLabel struct {
	MainID     string         `json:"mainId"`
	Name       string         `json:"name"`
	Timestamps wireTimestamps `json:"timestamps"`
	LastMerged string         `json:"lastMerged,omitempty"`
}

// serverNode is the subset of a returned node the session reads back.
type serverNode struct {
	ID          string         `json:"id"`
	ServerID    string         `json:"serverId"`
	ParentID    string         `json:"parentId"`
	Type        NodeType       `json:"type"`
	BaseVersion flexString     `json:"baseVersion"`
	Timestamps  wireTimestamps `json:"timestamps"`
}

// flexString accepts a JSON string or number. The server sends version
// counters as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// isDeleted reports whether a server timestamp marks the entity deleted.
func isDeleted(ts wireTimestamps) bool {
	return ts.Deleted != "" && ts.Deleted != epochTimestamp && ts.Deleted != "1970-01-01T00:00:00Z"
}
