// Package config loads the easel configuration.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← EASEL_<SECTION>_<KEY>
//	├─────────────────────────────┤
//	│  2. Config File             │  ← easel.toml or easel.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Each layer is read into a nested map, the maps are merged with
// loader.DeepMerge, and the result is decoded into Config.
//
// # Sub-packages
//
//   - loader: TOML, YAML and environment sources
//   - watcher: file watching for live reload
//
// # Configuration Files
//
//	# easel.toml
//	[server]
//	addr = "127.0.0.1:7420"
//	read_timeout = "10s"
//
//	[history]
//	capacity = 50
//
//	[storage]
//	dir = "saved_images"
//
// Durations are written as Go duration strings.
package config
