package tui

const (
	tableVerticalPadding = 9
	minTableHeight       = 4
	borderPadding        = 6

	// below this width the drawer replaces the top nav, mirroring the
	// original app's mobile layout switch
	narrowLayoutWidth = 80

	drawerModalWidth = 34
	loginBoxWidth    = 40

	defaultPageSize = 10
)

// pageSizes are the selectable rows-per-page options.
var pageSizes = []int{5, 10, 20, 50}
