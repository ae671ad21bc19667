// Package test 是用于辅助测试的包。仅限于内部使用
package test

import (
	"time"
)

// Customer 的主键按 <表名>Id 的约定识别
type Customer struct {
	CustomerId  *int64
	FirstName   string
	LastName    string
	DateOfBirth time.Time
}

// SuperHero 的主键用 pk 标签声明
type SuperHero struct {
	SuperHeroId int64 `sequel:"pk"`
	Name        string
	Alias       *string
}

func NewCustomers() []Customer {
	return []Customer{
		{FirstName: "Clark", LastName: "Kent", DateOfBirth: time.Date(1938, 6, 18, 0, 0, 0, 0, time.UTC)},
		{FirstName: "Bruce", LastName: "Wayne", DateOfBirth: time.Date(1939, 5, 27, 0, 0, 0, 0, time.UTC)},
		{FirstName: "Peter", LastName: "Parker", DateOfBirth: time.Date(1962, 8, 18, 0, 0, 0, 0, time.UTC)},
	}
}

func Ptr[T any](v T) *T {
	return &v
}

// 各个数据库的建表语句, 每个语句前先删表
const (
	SQLiteSchema = `
DROP TABLE IF EXISTS Customer;
CREATE TABLE Customer
(
    CustomerId      INTEGER PRIMARY KEY AUTOINCREMENT,
    FirstName       TEXT     NOT NULL,
    LastName        TEXT     NOT NULL,
    DateOfBirth     DATETIME NOT NULL
);
DROP TABLE IF EXISTS SuperHero;
CREATE TABLE SuperHero
(
    SuperHeroId     INTEGER PRIMARY KEY AUTOINCREMENT,
    Name            TEXT NOT NULL,
    Alias           TEXT
);
`

	PostgreSQLSchema = `
DROP TABLE IF EXISTS Customer;
CREATE TABLE Customer
(
    CustomerId      serial         NOT NULL,
    FirstName       VARCHAR(120)   NOT NULL,
    LastName        VARCHAR(120)   NOT NULL,
    DateOfBirth     timestamp      NOT NULL,
    PRIMARY KEY ( CustomerId )
);
DROP TABLE IF EXISTS SuperHero;
CREATE TABLE SuperHero
(
    SuperHeroId     serial         NOT NULL,
    Name            VARCHAR(120)   NOT NULL,
    Alias           VARCHAR(120),
    PRIMARY KEY ( SuperHeroId )
);
`

	MySQLSchema = `
DROP TABLE IF EXISTS Customer;
CREATE TABLE Customer
(
    CustomerId      INT          NOT NULL AUTO_INCREMENT,
    FirstName       VARCHAR(120) NOT NULL,
    LastName        VARCHAR(120) NOT NULL,
    DateOfBirth     DATETIME     NOT NULL,
    PRIMARY KEY ( CustomerId )
);
DROP TABLE IF EXISTS SuperHero;
CREATE TABLE SuperHero
(
    SuperHeroId     INT          NOT NULL AUTO_INCREMENT,
    Name            VARCHAR(120) NOT NULL,
    Alias           VARCHAR(120),
    PRIMARY KEY ( SuperHeroId )
);
`
)
