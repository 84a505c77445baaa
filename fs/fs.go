package appfs

import "embed"

// FS embeds the database migrations so the API and the admin CLI can run
// them without shipping loose files.
//
//go:embed migrations
var FS embed.FS
