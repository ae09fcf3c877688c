package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Config 数据库配置
type Config struct {
	// Path sqlite 文件路径, 目录不存在时自动创建
	Path        string
	ReMigration bool
	ReadConns   int
}

func DefaultConfig() Config {
	return Config{
		Path:        filepath.Join("database", "graph.db"),
		ReMigration: true,
		ReadConns:   max(4, runtime.NumCPU()),
	}
}

// DB 读写分离: Write 只有一个连接, Read 是只读连接池
type DB struct {
	Write *gorm.DB
	Read  *gorm.DB
}

var pragmas = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
	"_pragma=foreign_keys(1)",
	"_pragma=cache_size(1000000000)",
	"_pragma=temp_store(memory)",
	"_pragma=synchronous(NORMAL)",
	"_txlock=immediate",
}

func dsn(path string) string {
	return path + "?" + strings.Join(pragmas, "&")
}

// 连接数据库
func connectDB(cfg Config) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	sqliteDSN := dsn(cfg.Path)

	writeDB, err := gorm.Open(sqlite.Open(sqliteDSN), &gorm.Config{})
	if err != nil {
		logrus.Errorf("建立writeDB连接失败: %s", err.Error())
		return nil, fmt.Errorf("open write db: %w", err)
	}
	writeDBPool, err := writeDB.DB()
	if err != nil {
		logrus.Errorf("获取writeDB连接池失败: %s", err.Error())
		return nil, fmt.Errorf("write db pool: %w", err)
	}
	writeDBPool.SetMaxOpenConns(1)

	readDB, err := gorm.Open(sqlite.Open(sqliteDSN+"&_pragma=query_only(1)"), &gorm.Config{})
	if err != nil {
		logrus.Errorf("建立readDB连接失败: %s", err.Error())
		writeDBPool.Close()
		return nil, fmt.Errorf("open read db: %w", err)
	}
	readDBPool, err := readDB.DB()
	if err != nil {
		logrus.Errorf("获取readDB连接池失败: %s", err.Error())
		writeDBPool.Close()
		return nil, fmt.Errorf("read db pool: %w", err)
	}
	readConns := cfg.ReadConns
	if readConns <= 0 {
		readConns = max(4, runtime.NumCPU())
	}
	readDBPool.SetMaxOpenConns(readConns)

	return &DB{Write: writeDB, Read: readDB}, nil
}

// Migrate 自动迁移表, drop 为 true 时先删除已有的表
func (db *DB) Migrate(drop bool) error {
	if drop {
		if err := db.Write.Migrator().DropTable(tables()...); err != nil {
			logrus.Errorf("删除已存在的表失败: %s", err.Error())
			return fmt.Errorf("drop tables: %w", err)
		}
	}
	if err := db.Write.AutoMigrate(tables()...); err != nil {
		logrus.Errorf("自动迁移数据库表结构失败: %s", err.Error())
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Open 初始化数据库
func Open(cfg Config) (*DB, error) {
	db, err := connectDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(cfg.ReMigration); err != nil {
		db.Close()
		return nil, err
	}
	logrus.WithField("path", cfg.Path).Info("数据库已就绪")
	return db, nil
}

func (db *DB) Close() error {
	var errs []error
	for _, g := range []*gorm.DB{db.Read, db.Write} {
		pool, err := g.DB()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
