// Package icons maps file names to file-type icon assets.
package icons

import (
	"path"
	"strings"
	"sync"
)

// Generic is the asset used for unknown or missing extensions.
const Generic = "generic.png"

// Asset name prefixes for the sizes the shell draws.
const (
	SmallPrefix  = "small_"
	MediumPrefix = "drag_"
)

var assetExtensions = map[string][]string{
	"3D.png":              {"3ds", "3dm", "max", "obj"},
	"aftereffects.png":    {"aep", "aet"},
	"audio.png":           {"mp3", "wav", "3ga", "aif", "aiff", "flac", "iff", "m4a", "wma"},
	"cad.png":             {"dxf", "dwg"},
	"compressed.png":      {"zip", "rar", "tgz", "gz", "bz2", "tbz", "tar", "7z", "sitx"},
	"database.png":        {"sql", "accdb", "db", "dbf", "mdb", "pdb"},
	"dreamweaver.png":     {"dwt"},
	"folder.png":          {"folder"},
	"excel.png":           {"xls", "xlsx", "xlt", "xltm"},
	"executable.png":      {"exe", "com", "bin", "apk", "app", "msi", "cmd", "gadget"},
	"fla_lang.png":        {"as", "ascs", "asc"},
	"flash.png":           {"fla"},
	"font.png":            {"fnt", "otf", "ttf", "fon"},
	"gis.png":             {"gpx", "kml", "kmz"},
	"graphic.png":         {"gif", "tiff", "tif", "bmp", "png", "tga"},
	"html.png":            {"htm", "xhtml"},
	"illustrator.png":     {"ai", "ait"},
	"image.png":           {"jpg", "jpeg"},
	"indesign.png":        {"indd"},
	"java.png":            {"jar", "java", "class"},
	"midi.png":            {"mid", "midi"},
	"pdf.png":             {"pdf"},
	"photoshop.png":       {"abr", "psb", "psd"},
	"playlist.png":        {"pls", "m3u", "asx"},
	"podcast.png":         {"pcast"},
	"powerpoint.png":      {"pps", "ppt", "pptx"},
	"premiere.png":        {"prproj", "ppj"},
	"raw.png":             {"3fr", "arw", "bay", "cr2", "dcr", "dng", "fff", "mef", "mrw", "nef", "pef", "rw2", "srf", "orf", "rwl"},
	"real_audio.png":      {"rm", "ra", "ram"},
	"source_code.png":     {"sh", "c", "cc", "cpp", "cxx", "h", "hpp", "dll"},
	"spreadsheet.png":     {"ods", "ots", "gsheet", "nb", "xlr", "numbers"},
	"swf.png":             {"swf"},
	"torrent.png":         {"torrent"},
	"dmg.png":             {"dmg"},
	"text.png":            {"txt", "rtf", "ans", "ascii", "log", "odt", "wpd"},
	"vcard.png":           {"vcf"},
	"vector.png":          {"svgz", "svg", "cdr", "eps"},
	"video.png":           {"mkv", "webm", "avi", "mp4", "m4v", "mpg", "mpeg", "mov", "3g2", "3gp", "asf", "wmv", "flv"},
	"video_subtitles.png": {"srt"},
	"video_vob.png":       {"vob"},
	"web_data.png":        {"html", "xml", "shtml", "dhtml", "js", "css"},
	"web_lang.png":        {"php", "php3", "php4", "php5", "phtml", "inc", "asp", "pl", "cgi", "py"},
	"word.png":            {"doc", "docx", "dotx", "wps"},
}

var (
	tableOnce sync.Once
	table     map[string]string
)

func lookupTable() map[string]string {
	tableOnce.Do(func() {
		table = make(map[string]string, 256)
		for asset, exts := range assetExtensions {
			for _, ext := range exts {
				table[ext] = asset
			}
		}
	})
	return table
}

// Extension returns the lower-cased text after the last '.' of the base name,
// or "" when there is none.
func Extension(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	i := strings.LastIndexByte(base, '.')
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// Resolve returns the icon asset for filename. Lookup is case-insensitive
// and exact; unknown extensions resolve to Generic.
func Resolve(filename string) string {
	if asset, ok := lookupTable()[Extension(filename)]; ok {
		return asset
	}
	return Generic
}

// WithPrefix returns the asset for filename with a size prefix prepended.
func WithPrefix(filename, prefix string) string {
	return prefix + Resolve(filename)
}

// Small returns the small (list row) asset for filename.
func Small(filename string) string {
	return WithPrefix(filename, SmallPrefix)
}

// Medium returns the medium (drag/recent file) asset for filename.
func Medium(filename string) string {
	return WithPrefix(filename, MediumPrefix)
}

// Assets returns every distinct asset name, Generic included.
func Assets() []string {
	out := make([]string, 0, len(assetExtensions)+1)
	for asset := range assetExtensions {
		out = append(out, asset)
	}
	return append(out, Generic)
}
