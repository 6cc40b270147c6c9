// Package chaptermaker wraps the external chapter generation tool and parses
// the chapter documents it produces.
package chaptermaker
