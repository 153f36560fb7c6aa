// Package migrations はPostgreSQL用のスキーママイグレーション（goose形式）を埋め込みます。
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
