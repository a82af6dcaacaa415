package extractor

const systemPrompt = `You are an assistant specialized in extracting structured data from invoice text.
Extract the following information and return it as a JSON object:
- amount (number): total invoice amount
- date (string): invoice date in YYYY-MM-DD format
- vendor (string): company or vendor name
- invoice_number (string): invoice number or ID
- description (string): brief description of services or products
- tax_amount (number): tax amount if present
- currency (string): 3-letter currency code (USD, EUR, etc.)

If any field is not found, set it to null.
Return only valid JSON, no additional text.`

const fieldsUserPrompt = `Extract data from this invoice text:

%s`
