package transport

// BotPermissions lists the permissions the provider grants its own
// identity when it creates a channel via GetOrCreateChannel.
var BotPermissions = []string{
	"manageMessages",
	"viewChannel",
	"sendMessages",
	"attachFiles",
	"readMessageHistory",
	"addReactions",
}

// EveryonePermissions lists the permissions granted to the default role;
// everything else is explicitly denied.
var EveryonePermissions = []string{
	"viewChannel",
	"addReactions",
}
