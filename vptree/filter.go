package vptree

import "github.com/RoaringBitmap/roaring/v2"

// AllowFilter returns a search filter accepting only the point IDs present
// in the bitmap.
func AllowFilter(bm *roaring.Bitmap) func(id uint32) bool {
	return bm.Contains
}

// DenyFilter returns a search filter rejecting the point IDs present in the
// bitmap (e.g. a deleted set).
func DenyFilter(bm *roaring.Bitmap) func(id uint32) bool {
	return func(id uint32) bool {
		return !bm.Contains(id)
	}
}
