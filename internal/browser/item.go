package browser

import (
	"path/filepath"

	"xpick/internal/thumb"
)

// Kind discriminates directory entries for display
type Kind int

const (
	// Parent is the synthetic "go up" entry at index 0
	Parent Kind = iota
	Folder
	Image
	Index
	File
)

func (k Kind) String() string {
	switch k {
	case Parent:
		return "parent"
	case Folder:
		return "folder"
	case Image:
		return "image"
	case Index:
		return "index"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// HasThumbnail reports whether entries of this kind carry a thumbnail handle
func (k Kind) HasThumbnail() bool {
	return k == Image || k == Index
}

// ParentName is the display name of the parent sentinel
const ParentName = ".."

// Item is a classified directory entry
type Item struct {
	Path string
	Name string
	Kind Kind
	// Thumb is set for Image and Index items when a cache is attached
	Thumb *thumb.Handle
}

// IsParent reports whether the item is the parent sentinel
func (it Item) IsParent() bool {
	return it.Kind == Parent
}

func parentItem(dir string) Item {
	return Item{Path: filepath.Dir(dir), Name: ParentName, Kind: Parent}
}
