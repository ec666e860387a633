// Package all importa todos los adapters para auto-registro.
//
//	import _ "github.com/dropDatabas3/stockauth/internal/store/all"
package all

import (
	_ "github.com/dropDatabas3/stockauth/internal/store/memory"
	_ "github.com/dropDatabas3/stockauth/internal/store/pg"
)
