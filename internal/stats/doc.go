// Package stats keeps per-user usage totals in one JSON file shared by every
// client, typically on a network drive.
//
// Writers serialize through an exclusive non-blocking lock on the file and
// retry with randomized exponential backoff when it is busy. Readers do not
// lock; they may see an older document, or an empty one while a write is in
// progress, and cache what they read for a short time.
//
// The file holds a JSON array:
//
//	[
//	  {
//	    "name": "alice",
//	    "totalSwitches": 2,
//	    "totalDuration": 25,
//	    "totalSpaceCleaned": 0,
//	    "lastActive": "2026-01-02T10:00:00+01:00"
//	  }
//	]
//
// Keys match case-insensitively, so documents written with PascalCase keys
// load as well.
package stats
