/*
Package ports defines the driven ports (interfaces) of the botsmith compiler.

These interfaces decouple compilation from the places graphs and secrets
live, so the CLI, the HTTP API and library users can plug their own backends.

# Key Interfaces

  - GraphLoader: Retrieves exported bot graphs by name (e.g., from a directory or memory).
  - TokenSource: Looks up the Telegram bot token written into the generated .env file.
  - TokenStore: A TokenSource that can also be written to (e.g., Redis).
*/
package ports
