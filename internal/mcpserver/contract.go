package mcpserver

// RecordFormatContract describes the canonical annotation record format
// that LLM consumers see in read_record output and in the sidecar file.
const RecordFormatContract = `# Wunjo Record Format Contract

Every media file in the open library has one annotation record. Records
are persisted in a single ` + "`" + `annotations.json` + "`" + ` sidecar at the library root,
keyed by the library-relative path (forward slashes). The reserved
` + "`" + `_settings` + "`" + ` key holds viewer settings, not a record.

## Fields

` + "```" + `jsonc
{
  "text": "caption shown under the media",   // empty = no caption
  "skip": true,                              // images: exclude from playback
  "skip": [{"start_timestamp": 12.5}],       // videos: spans to jump over
  "rotation": 90,                            // images only: 0, 90, 180, 270
  "volume": 60,                              // videos only: 0..100 in steps of 20
  "annotations": [                           // videos only, sorted by timestamp
    {"timestamp": 5.0, "text": "kickoff"}
  ],
  "location": {
    "latitude": 38.7223,                     // EXIF GPS fix, if captured
    "longitude": -9.1393,
    "automated_text": "Lisbon, Portugal",    // reverse-geocoded place name
    "manual_text": "grandma's garden"        // user text, wins over automated
  },
  "manual_datetime": "2021-06-05 10:30:00",  // user override, wins over cached
  "cached_datetime": "2020-01-02 03:04:05"   // derived from EXIF or file time
}
` + "```" + `

## Rules

1. **Fields at their defaults are omitted.** A record with no annotations
   is an empty object ` + "`" + `{}` + "`" + `.
2. **` + "`" + `skip` + "`" + ` is polymorphic.** A bool on image records, a list of
   segment starts on video records. A skipped image is passed over by
   navigation; a video skip span is jumped during playback.
3. **Datetimes** use the layout ` + "`" + `2006-01-02 15:04:05` + "`" + ` (no zone). The
   effective instant is ` + "`" + `manual_datetime` + "`" + ` when present, else
   ` + "`" + `cached_datetime` + "`" + `. read_record reports it as ` + "`" + `datetime` + "`" + ` with a
   ` + "`" + `datetime_source` + "`" + ` of ` + "`" + `manual` + "`" + `, ` + "`" + `cached` + "`" + ` or ` + "`" + `unresolved` + "`" + `.
4. **Caption and annotation text** is free-form, any language. Keep it
   short: it is rendered over the media during playback.
5. **Paths** are library-relative with forward slashes and never start
   with ` + "`" + `/` + "`" + ` or ` + "`" + `..` + "`" + `.

## Tools

- ` + "`" + `list_media` + "`" + ` returns paths in playback order (oldest capture first).
- ` + "`" + `read_record` + "`" + ` returns the record of one path plus ` + "`" + `kind` + "`" + `,
  ` + "`" + `datetime` + "`" + `, ` + "`" + `datetime_source` + "`" + ` and, for videos, ` + "`" + `duration_seconds` + "`" + `.
- ` + "`" + `caption_media` + "`" + ` replaces the caption; an empty string clears it.
- ` + "`" + `search_annotations` + "`" + ` matches captions, video annotation text and
  location text.
`
