package repl

import "github.com/loreleva/Bbo-functions/pkg"

var (
	ErrOutOfBounds   = pkg.NewError("history index out of range")
	ErrEditDeclined  = pkg.NewError("decline edit")
	ErrNotDefinition = pkg.NewError("expected one variable definition")
	ErrNoCatalog     = pkg.NewError("no function catalog loaded (use --catalog)")
	ErrPoint         = pkg.NewError("invalid point")
)
