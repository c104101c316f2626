// SPDX-License-Identifier: EPL-2.0

//go:build audcache_debug

package cache

const debugging = true

func assert(cond bool, message string) {
	if !cond {
		panic(message)
	}
}
