//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/creativevault/pkg/configs"
)

// 注册纯 Go SQLite dialector.
func init() {
	RegisterDialectorFactory(configs.SQLite, func(dsn string) gorm.Dialector { return sqlite.Open(dsn) })
}
