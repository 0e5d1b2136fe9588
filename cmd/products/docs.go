package main

// @title Products API
// @version 1.0
// @description Product catalogue service for the outdoor store front end

// @BasePath /
