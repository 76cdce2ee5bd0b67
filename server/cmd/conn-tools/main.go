package main

import (
	"github.com/buildbeaver/connections/server/cmd/conn-tools/commands"
	_ "github.com/buildbeaver/connections/server/cmd/conn-tools/commands/connection"
	_ "github.com/buildbeaver/connections/server/cmd/conn-tools/commands/migrate"
	_ "github.com/buildbeaver/connections/server/cmd/conn-tools/commands/project"
	_ "github.com/buildbeaver/connections/server/cmd/conn-tools/commands/provision"
	_ "github.com/buildbeaver/connections/server/cmd/conn-tools/commands/resolve"
	_ "github.com/buildbeaver/connections/server/cmd/conn-tools/commands/token"
)

func main() {
	commands.Execute()
}
