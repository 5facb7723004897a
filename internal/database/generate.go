package database

// Query code in ./sqlc is generated from sqlc/query.sql against the
// migration files. To regenerate:
//   go generate ./internal/database

//go:generate sh -c "cd sqlc && sqlc generate -f sqlc.yaml"
