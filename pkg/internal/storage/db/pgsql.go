//go:build !no_postgres

package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/creativevault/pkg/configs"
)

// 注册PostgreSQL dialector工厂函数，三个别名共用.
func init() {
	open := func(dsn string) gorm.Dialector { return postgres.Open(dsn) }

	RegisterDialectorFactory(configs.PostgreSQL, open)
	RegisterDialectorFactory(configs.Postgres, open)
	RegisterDialectorFactory(configs.Pg, open)
}
