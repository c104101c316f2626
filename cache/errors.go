// SPDX-License-Identifier: EPL-2.0

package cache

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid cache config")
	ErrNoTrack       = errors.New("no track to open")
)
