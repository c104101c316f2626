// SPDX-License-Identifier: EPL-2.0

// Package config loads the audcache CLI configuration with viper.
//
// A YAML file is optional. Every key can be overridden from the
// environment with the AUDCACHE_ prefix and dots replaced by
// underscores:
//
//	AUDCACHE_LOGGING_LEVEL=debug
//	AUDCACHE_CACHE_MEMORY_LIMIT=64MiB
//	AUDCACHE_PLAYBACK_REVERSE=true
//
// An example file:
//
//	logging:
//	  level: info
//	  format: text
//	cache:
//	  memory_limit: 128MiB
//	  frames_per_chunk: 8192
//	  hint_frames: 4096
//	playback:
//	  buffer_frames: 512
//	  realtime: true
//	metrics:
//	  enabled: true
//	  port: 9090
package config
