package config

// DefaultDatabasePath is the default location of the local sqlite store.
const DefaultDatabasePath = "./clipshelf.db"
