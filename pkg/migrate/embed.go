package migrate

import "embed"

//go:embed migrations/*.sql
var embedded embed.FS

const embeddedDir = "migrations"
