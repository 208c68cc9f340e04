//go:build !fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import "fmt"

// Run refuses to open the card editor in headless builds. The message points
// at the fyne build and at replay, which drives the same viewport without a
// display.
func Run(deckPath string) error {
	target := "[deck.yaml]"
	if deckPath != "" {
		target = deckPath
	}
	return fmt.Errorf("dragoneye: card editor not built into this binary. Rebuild with: go run -tags fyne ./cmd/dragoneye ui %s (or drive the viewport headless with: dragoneye replay <script.yaml>)", target)
}
