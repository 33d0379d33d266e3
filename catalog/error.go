package catalog

import "github.com/loreleva/Bbo-functions/pkg"

var (
	ErrLoad           = pkg.NewError("failed to load catalog")
	ErrFormat         = pkg.NewError("unsupported catalog format")
	ErrDefinition     = pkg.NewError("invalid function definition")
	ErrCompile        = pkg.NewError("error while compiling function")
	ErrMetadata       = pkg.NewError("invalid function metadata")
	ErrNotFound       = pkg.NewError("function does not exist")
	ErrNeedsDimension = pkg.NewError("function needs the dimension value")
	ErrDimension      = pkg.NewError("point has wrong dimension")
	ErrNoMinimum      = pkg.NewError("minimum is unknown")
	ErrWatch          = pkg.NewError("failed to watch catalog")
)
