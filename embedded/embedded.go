package embedded

import _ "embed"

// Database migrations.

//go:embed sql/1x0.sql
// DBMigration1x0 is the initial database setup from first version.
var DBMigration1x0 string

//go:embed sql/1x1.sql
var DBMigration1x1 string

// Resource catalog.

//go:embed catalog/maps.json
// CatalogMaps holds all playable maps with their supported game modes.
var CatalogMaps []byte

//go:embed catalog/experience.json
// CatalogExperience holds the experience tables per game mode.
var CatalogExperience []byte
