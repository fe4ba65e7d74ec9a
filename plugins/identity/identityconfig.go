package identity

import (
	inglesh "github.com/devlitus/lesson-inglesh"
)

func init() {
	inglesh.RegisterConfigKeys(
		inglesh.ConfigKeyInfo{
			Key:         "identity.provider",
			Description: "Which registered identity gateway serves the app",
			Type:        "string",
			Default:     "local",
		},
		inglesh.ConfigKeyInfo{
			Key:         "identity.signingKey",
			Description: "Signing key for session access tokens",
			Type:        "string",
		},
		inglesh.ConfigKeyInfo{
			Key:         "identity.sessionTtl",
			Description: "How long a login session should be valid for",
			Type:        "duration",
			Default:     "720h",
		},
		inglesh.ConfigKeyInfo{
			Key:         "identity.refreshThreshold",
			Description: "Remaining validity below which a session token is re-issued (0 disables)",
			Type:        "duration",
			Default:     "168h",
		},
		inglesh.ConfigKeyInfo{
			Key:         "identity.minPasswordLength",
			Description: "Minimum password length accepted at registration",
			Type:        "int",
			Default:     8,
		},
		inglesh.ConfigKeyInfo{
			Key:         "identity.throttle.attempts",
			Description: "Failed sign-in attempts allowed per email before throttling",
			Type:        "int",
			Default:     5,
		},
		inglesh.ConfigKeyInfo{
			Key:         "identity.throttle.window",
			Description: "Window over which failed sign-in attempts are replenished",
			Type:        "duration",
			Default:     "15m",
		},
	)
}
