// SPDX-License-Identifier: EPL-2.0

package config

import "errors"

var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrInvalidLevel   = errors.New("invalid log level")
)
