// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package byml reads, writes, and YAML-bridges BYML documents: typed
// trees with deduplicated string tables and non-inline-node pointer
// reuse, as produced by the game's data pipeline.
package byml
