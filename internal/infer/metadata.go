package infer

import (
	"encoding/json"

	"github.com/voicevoxcore/voicevoxcore-go/model"
	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

// ParseMetadata decodes a metas.json byte stream (spec.md §6.4: an array of
// {name, styles: [{name, id}], speaker_uuid, version}) into the speaker
// records LoadModel derives its supported-style set from.
func ParseMetadata(data []byte) ([]model.SpeakerMeta, error) {
	var metas []model.SpeakerMeta
	if err := json.Unmarshal(data, &metas); err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.MetadataError, err)
	}
	return metas, nil
}

// stylesOf flattens every style id exposed across a metadata array's
// speakers, in document order.
func stylesOf(metas []model.SpeakerMeta) []model.StyleID {
	var styles []model.StyleID
	for _, m := range metas {
		for _, s := range m.Styles {
			styles = append(styles, s.ID)
		}
	}
	return styles
}
