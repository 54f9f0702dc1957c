// Package freewebnovel reads novel overview pages and chapter pages laid out
// like freewebnovel.com and turns them into book metadata and sanitized
// chapter bodies.
package freewebnovel
