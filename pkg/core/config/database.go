package config

import (
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	// Driver mysql 或 postgres，为空时不启用数据库
	Driver   string `yaml:"driver" json:"driver,omitempty"`
	Host     string `yaml:"host" json:"host,omitempty"`
	Port     int64  `yaml:"port" json:"port,omitempty"`
	User     string `yaml:"user" json:"user,omitempty"`
	Password string `yaml:"password" json:"password,omitempty"`
	DbName   string `yaml:"db-name" json:"db-name,omitempty"`
}

func InitPg(database Database) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable password=%s",
		database.Host, database.Port, database.User, database.DbName, database.Password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, configurePool(db)
}

// MysqlDSN 通过驱动的 Config 生成连接串
func MysqlDSN(database Database) string {
	cfg := mysqldriver.NewConfig()
	cfg.User = database.User
	cfg.Passwd = database.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", database.Host, database.Port)
	cfg.DBName = database.DbName
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

func InitMysql(database Database) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(MysqlDSN(database)), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, configurePool(db)
}

func configurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}
