package snapshot

import "encoding/xml"

// settingsFile is the on-disk shape of a settings namespace:
//
//	<settings version="1">
//	  <setting name="adb_enabled" value="0"/>
//	</settings>
type settingsFile struct {
	XMLName  xml.Name       `xml:"settings"`
	Settings []settingEntry `xml:"setting"`
}

type settingEntry struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// parseSettings decodes one namespace file into a key-value map. A
// duplicate name keeps the last entry, matching read-back order of the
// underlying store.
func parseSettings(data []byte) (map[string]string, error) {
	var doc settingsFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(doc.Settings))
	for _, s := range doc.Settings {
		if s.Name == "" {
			continue
		}
		out[s.Name] = s.Value
	}
	return out, nil
}
