package gateway

const (
	// SystemPrompt instructs the model to answer with JSON only.
	SystemPrompt = "Kamu adalah AI yang mengenali buku dari foto atau judul. Jawab HANYA JSON valid tanpa penjelasan."

	// BasePrompt lists the exact keys of the book record.
	BasePrompt = "Keluarkan JSON DENGAN PERSIS kunci berikut dan tidak ada yang lain (jika bisa, gunakan link harga dari Gramedia terlebih dahulu). " +
		"Dilarang menulis placeholder seperti 'Judul Buku 1/2/3'; rekomendasi harus judul buku nyata:\n" +
		"{\n" +
		"\"judul\": \"Judul buku\",\n" +
		"\"penulis\": \"Nama penulis\",\n" +
		"\"genre\": \"Genre utama (string)\",\n" +
		"\"rating\": \"Angka 1-5 (string)\",\n" +
		"\"harga\": \"Harga buku (string, misal: Rp 120.000)\",\n" +
		"\"hargaLink\": \"URL rujukan harga (string)\",\n" +
		"\"summary\": \"Ringkasan maksimal 100 kata dalam Bahasa Indonesia\",\n" +
		"\"rekomendasi\": [\"Judul 1\", \"Judul 2\", \"Judul 3\"]\n" +
		"}"
)

// buildPrompt returns the user prompt for a request. Image requests send the
// base prompt alongside the picture; title requests name the book first.
func buildPrompt(req Request) string {
	if req.ImageDataURL != "" {
		return BasePrompt
	}
	return `Dari judul buku: "` + req.TitleQuery + `", ` + BasePrompt
}
