/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport is the interaction core of the card canvas.
//
// It owns the pan/zoom transform (Engine) and a single-pointer gesture state
// machine that tells panning (middle mouse button), box selection (primary
// button on background, committed once the drag exceeds a threshold) and
// clicks on interactive elements apart. Hosts plug in through the Container,
// Input and Surface interfaces; results flow out through the transform and
// selection streams.
//
// Coordinates: pointer and candidate positions are screen coordinates, the
// transform maps content space to container-local space. Box selection
// compares rectangles after moving both into container-local space and
// selects only candidates that are fully contained in the box.
//
// A Viewport is single-threaded. Every state change happens synchronously
// inside the input callback that caused it; the only deferred work is the
// frame-paced surface update and tasks started with After, all of which are
// cancelled by Detach.
package viewport
