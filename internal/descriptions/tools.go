package descriptions

import "sort"

// Tool names exposed over MCP.
const (
	ClaimsExtractFile = "claims_extract_file"
	PDFValidateFile   = "pdf_validate_file"
	ClaimsListFiles   = "claims_list_files"
	ClaimsServerInfo  = "claims_server_info"
)

const (
	ClaimsExtractFileDescription = `Extract one flat claim record per patient block from a remittance advice PDF.

**When to use:** You have a payer remittance (ERA/EOB print) and need patient, provider, claim, service line and payment fields as rows.

**What you get:** Every record carries the same 20 fields (Patient Name, Patient ID, Provider Name, Provider ID, Patient CTRL, Provider CTRL, Charge, Payment, PAYEE ID, Claim Number, Orig Ref Num, CLAIM STATUS, PAYEE, VENDOR, Pay Date, CHECK/EFT, CHECK/EFT Date, Date Of Service, Service Code, Modifier). Missing values are empty strings. Date Of Service, Service Code and Modifier are read by column position and may hold several comma-separated values.

**Examples:**
• "Extract the claims from remits/2024-01-acme.pdf"
• "Extract remits/acme.pdf and save it as remits/acme.xlsx" (format xlsx, output path)

**Common workflows:**
1. Reconciliation: claims_list_files → claims_extract_file → compare Charge and Payment totals
2. Export: claims_extract_file with output set → open the CSV or XLSX in a spreadsheet

**Best practices:** Run pdf_validate_file first on unknown files. Blocks whose service lines could not be located are still returned with their tagged fields.`

	PDFValidateFileDescription = `Verify a PDF can be opened and processed before extraction.

**When to use:** Before extracting from an unknown file or a fresh download.

**What you get:** Validity, page count, size, and any structural warnings reported by relaxed validation.

**Best practices:** Warnings do not prevent extraction; payer systems often emit slightly malformed files.`

	ClaimsListFilesDescription = `List remittance PDFs under the configured directory.

**When to use:** Finding the file to extract, or building a batch of remittances to process one by one.

**Examples:**
• "List remittances from acme" (query "acme")
• "Show PDFs in the 2024 folder" (directory "2024")

**Best practices:** The query matches words of the file name in any order.`

	ClaimsServerInfoDescription = `Show server configuration, available tools and the PDFs found in the default directory.

**When to use:** Starting a session or troubleshooting path and size limits.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ClaimsExtractFile: ClaimsExtractFileDescription,
	PDFValidateFile:   PDFValidateFileDescription,
	ClaimsListFiles:   ClaimsListFilesDescription,
	ClaimsServerInfo:  ClaimsServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the available tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
