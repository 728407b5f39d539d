package llm

var GenerateConfig = generateConfig
