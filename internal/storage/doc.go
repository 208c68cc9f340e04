/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements the local deck library.
// Decks are kept in a single SQLite database (WAL mode) with a meta/version table and stepwise migrations.
// Card titles, text and tags are indexed with a contentless FTS5 table kept in sync by triggers.
// The deck files on disk stay canonical; the library is a searchable collection of snapshots.
package storage
