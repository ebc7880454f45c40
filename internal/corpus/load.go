package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/hfarah/noor/internal/arabic"
)

// verseSource mirrors one entry of a verses JSON file.
type verseSource struct {
	Surah       int    `json:"surah"`
	Ayah        int    `json:"ayah"`
	Arabic      string `json:"arabic"`
	Translation string `json:"translation"`
	Page        int    `json:"page"`
}

// hadithSource mirrors one entry of a hadith JSON file.
type hadithSource struct {
	Book        string `json:"book"`
	Number      int    `json:"number"`
	Arabic      string `json:"arabic"`
	Translation string `json:"translation"`
	Narrator    string `json:"narrator"`
	Grade       string `json:"grade"`
	Chapter     string `json:"chapter"`
}

func loadFile(kind Kind, path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	switch kind {
	case KindVerse:
		return decodeVerses(data)
	case KindHadith:
		return decodeHadith(data)
	default:
		return nil, fmt.Errorf("unknown corpus kind %q", kind)
	}
}

func decodeVerses(data []byte) ([]Record, error) {
	var src []verseSource
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("decode verses: %w", err)
	}
	records := make([]Record, 0, len(src))
	for _, v := range src {
		records = append(records, Record{
			Key:         strconv.Itoa(v.Surah) + ":" + strconv.Itoa(v.Ayah),
			Kind:        KindVerse,
			Arabic:      v.Arabic,
			Normalized:  arabic.Normalize(v.Arabic),
			Translation: v.Translation,
			Verse:       &VerseMeta{Surah: v.Surah, Ayah: v.Ayah, Page: v.Page},
		})
	}
	return records, nil
}

func decodeHadith(data []byte) ([]Record, error) {
	var src []hadithSource
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("decode hadith: %w", err)
	}
	records := make([]Record, 0, len(src))
	for _, h := range src {
		records = append(records, Record{
			Key:         h.Book + ":" + strconv.Itoa(h.Number),
			Kind:        KindHadith,
			Arabic:      h.Arabic,
			Normalized:  arabic.Normalize(h.Arabic),
			Translation: h.Translation,
			Hadith: &HadithMeta{
				Book: h.Book, Number: h.Number,
				Narrator: h.Narrator, Grade: h.Grade, Chapter: h.Chapter,
			},
		})
	}
	return records, nil
}
