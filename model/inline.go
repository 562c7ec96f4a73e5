/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package model

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// MaxInlineDepth bounds nested inlining.
const MaxInlineDepth = 8

var inlinePattern = regexp.MustCompile(`(?s)(.*?)(%inline *\("([^"]*)"\))`)

// Inline replaces '%inline("NAME")' with f(NAME).
//
// Replacements aren't themselves searched.
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	i := 0
	acc := make([]byte, 0, len(bs))
	for {
		part := inlinePattern.FindSubmatch(bs[i:])
		if part == nil {
			acc = append(acc, bs[i:]...)
			break
		}
		i += len(part[0])
		acc = append(acc, part[1]...)
		replacement, err := f(string(part[3]))
		if err != nil {
			return nil, err
		}
		util.Logf("inlining %s (%d bytes)", part[3], len(replacement))
		acc = append(acc, replacement...)
	}
	return acc, nil
}

// ReadFileWithInlines reads the file and inlines the files it names.
//
// Names are relative to the directory of the file that names them,
// and inlined files can inline others up to MaxInlineDepth deep.
// Rule files are typically inlined into a model's rules list.
func ReadFileWithInlines(filename string) ([]byte, error) {
	return readWithInlines(filename, 0)
}

func readWithInlines(filename string, depth int) ([]byte, error) {
	if MaxInlineDepth < depth {
		return nil, fmt.Errorf("%s: inlining deeper than %d", filename, MaxInlineDepth)
	}
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(filename)
	return Inline(bs, func(name string) ([]byte, error) {
		return readWithInlines(filepath.Join(dir, name), depth+1)
	})
}
