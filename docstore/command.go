package docstore

// Command names understood by the client.
const (
	CommandInsert             = "insert"
	CommandFind               = "find"
	CommandDelete             = "delete"
	CommandDrop               = "drop"
	CommandPing               = "ping"
	CommandHello              = "hello"
	CommandConfigureFailPoint = "configureFailPoint"
)

// Command is one operation to run against the deployment.
//
// Name selects the operation, Database and Collection address the target, and
// Body carries the operation's arguments. Collection may be empty for
// database-level commands such as ping and hello.
type Command struct {
	Name       string
	Database   string
	Collection string
	Body       Document
}

// wireDocument renders the command the way it is sent to an endpoint: the
// command name maps to its collection target (or 1 for database-level
// commands), followed by the body's arguments and the target database.
func (c Command) wireDocument() Document {
	doc := Document{}

	if c.Collection != "" {
		doc[c.Name] = c.Collection
	} else {
		doc[c.Name] = 1
	}

	for key, val := range c.Body {
		doc[key] = val
	}

	doc["$db"] = c.Database

	return doc
}
