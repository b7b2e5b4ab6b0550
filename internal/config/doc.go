// Package config provides configuration parsing for vmorph.
//
// The configuration is stored in vmorph.json. This package handles loading,
// saving, and validating it. Keys left out of the file keep their defaults.
//
// # Configuration File Structure
//
//	{
//	  "plugins": ["attrpersist", "inputpersist", "transition"],
//	  "base": {
//	    "childrenOnly": false,
//	    "keyAttribute": "id"
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "readTimeout": "10s",
//	    "allowedOrigins": ["https://app.example.com"]
//	  },
//	  "metrics": {"enabled": true, "namespace": "vmorph"},
//	  "tracing": {"enabled": false},
//	  "transition": {"defaultDelay": "65ms"},
//	  "log": {"level": "info", "format": "text"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
