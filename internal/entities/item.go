package entities

// ItemKind names the three shapes a source row can take.
type ItemKind string

const (
	ItemKindFolder    ItemKind = "folder"
	ItemKindNote      ItemKind = "note"
	ItemKindChecklist ItemKind = "checklist"
)

// Item is a transformed source row. The set of implementations is closed:
// Folder, Note and Checklist are the only types that satisfy it.
type Item interface {
	Kind() ItemKind
	ItemTitle() string
	item()
}

// Folder is a label definition. It is never imported as a note.
type Folder struct {
	Title string
	Color Color
}

// Note is a free-text note.
type Note struct {
	Title  string
	Body   string
	Folder string
	Pinned bool
	Color  Color
}

// Checklist is a note whose body is an ordered list of checkable entries.
type Checklist struct {
	Title   string
	Entries []ListEntry
	Folder  string
	Pinned  bool
	Color   Color
}

type ListEntry struct {
	Text    string
	Checked bool
}

func (Folder) Kind() ItemKind    { return ItemKindFolder }
func (Note) Kind() ItemKind      { return ItemKindNote }
func (Checklist) Kind() ItemKind { return ItemKindChecklist }

func (f Folder) ItemTitle() string    { return f.Title }
func (n Note) ItemTitle() string      { return n.Title }
func (c Checklist) ItemTitle() string { return c.Title }

func (Folder) item()    {}
func (Note) item()      {}
func (Checklist) item() {}

// FolderName returns the folder an importable item belongs to, or "" for
// folders themselves and items outside any folder.
func FolderName(it Item) string {
	switch v := it.(type) {
	case Note:
		return v.Folder
	case Checklist:
		return v.Folder
	default:
		return ""
	}
}
