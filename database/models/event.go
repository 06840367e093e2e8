// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package models

// Event is one entry of the append-only ledger event log. ID is the
// sequence number and strictly increases in commit order
type Event struct {
	ID          uint64 `gorm:"primarykey"`
	Type        string `gorm:"index;size:64;not null"`
	ContentHash []byte `gorm:"index;size:32"`
	Payload     []byte
	Timestamp   int64
}

func (Event) TableName() string {
	return "event"
}

// EventFilter selects event log entries. Zero values match everything
type EventFilter struct {
	Type        string
	ContentHash []byte
	// After only returns entries with a sequence number greater than this
	After      uint64
	Limit      int
	Offset     int
	Descending bool
}
