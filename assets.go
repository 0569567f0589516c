package assets

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS

//go:embed templates.yml
var TemplatesFS embed.FS
