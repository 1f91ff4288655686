package converter

import "github.com/mrlokans/ne2keep/internal/entities"

// Plan is the converted source split into label definitions and
// importable items, both in source order.
type Plan struct {
	Folders []entities.Folder
	Items   []entities.Item

	// Implicit lists folder names referenced by items without a folder row
	// of their own. Each also appears in Folders with an unset color.
	Implicit []string
}

// Partition splits items into folders and importable items. Every folder
// referenced by an item is guaranteed a Folders entry, so resolving the
// folders always yields a label for every item.
func Partition(items []entities.Item) Plan {
	var plan Plan
	defined := make(map[string]bool)

	for _, it := range items {
		if f, ok := it.(entities.Folder); ok {
			plan.Folders = append(plan.Folders, f)
			defined[f.Title] = true
			continue
		}
		plan.Items = append(plan.Items, it)
	}

	for _, it := range plan.Items {
		name := entities.FolderName(it)
		if name == "" || defined[name] {
			continue
		}
		defined[name] = true
		plan.Implicit = append(plan.Implicit, name)
		plan.Folders = append(plan.Folders, entities.Folder{Title: name})
	}

	return plan
}
