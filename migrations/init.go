package migrations

import (
	"io/fs"

	accounts "github.com/goliatone/go-accounts"
)

func init() {
	sub, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		panic("go-accounts: unable to mount embedded migrations: " + err.Error())
	}
	Register(sub)
}
